// Package inmemdb provides in-memory repository doubles for tests.
package inmemdb

import (
	"sync"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/teams"
	"github.com/darasa-app/darasa/core/user"
)

type completionRecord struct {
	completion float64
	order      int // insertion order stands in for updated_at
}

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	courses     map[course.CourseKey]*course.Course
	completions map[string]map[course.UsageKey]completionRecord // userID|courseKey
	positions   map[string]int                                  // userID|blockKey
	enrollments []enrollment.Enrollment
	modes       []enrollment.CourseMode
	entitled    map[string]bool // userID
	teams       map[string]*teams.Team
	members     map[string][]string // teamID -> userIDs
	restricted  map[course.CourseKey]bool
	enterprise  map[string]bool // userID -> linked to an enterprise customer

	completionSeq int
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[course.CourseKey]*course.Course),
		completions: make(map[string]map[course.UsageKey]completionRecord),
		positions:   make(map[string]int),
		entitled:    make(map[string]bool),
		teams:       make(map[string]*teams.Team),
		members:     make(map[string][]string),
		restricted:  make(map[course.CourseKey]bool),
		enterprise:  make(map[string]bool),
	}
}

func scopedKey(userID string, scope string) string {
	return userID + "|" + scope
}
