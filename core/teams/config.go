// Package teams covers course team configuration and the privacy rules of
// team discussions.
package teams

import (
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core"
)

// ClusteringScheme is how a course's teams are divided into clusters.
//
// Under "topics" each cluster groups teams related in subject material and a
// learner joins one team per course. Under "teamsets" each cluster forms
// around an assignment and a learner joins one team per teamset.
type ClusteringScheme string

const (
	SchemeTopics   ClusteringScheme = "topics"
	SchemeTeamsets ClusteringScheme = "teamsets"
)

// Management is who creates and assigns the teams of a cluster.
type Management string

const (
	ManagementInstructor Management = "instructor"
	ManagementStudent    Management = "student"
)

// TeamSizeLimitEnabled reports whether team size limits apply; instructors
// assigning teams are not bound by them.
func (m Management) TeamSizeLimitEnabled() bool { return m == ManagementStudent }

// Visibility is who can see a cluster's team details and discussions.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

var validClusterID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Cluster is the configuration of one set of teams.
type Cluster struct {
	ID          string
	Name        string
	Description string
	Management  Management
	Visibility  Visibility

	maxTeamSize *int
}

// MaxTeamSize is the cluster's own team size cap, nil when unset or when the
// management scheme ignores size limits. Zero is a valid cap, distinct from
// unset.
func (c Cluster) MaxTeamSize() *int {
	if !c.Management.TeamSizeLimitEnabled() {
		return nil
	}
	return c.maxTeamSize
}

// Config is a course's parsed teams configuration.
type Config struct {
	Scheme      ClusteringScheme
	Clusters    []Cluster
	MaxTeamSize *int
}

// Enabled reports whether the teams feature is on for the course. Teamset
// clustering parses but stays disabled until team membership supports
// one-team-per-teamset.
func (c *Config) Enabled() bool {
	return c != nil && c.Scheme == SchemeTopics && len(c.Clusters) > 0
}

// ClustersByID indexes the clusters by their id.
func (c *Config) ClustersByID() map[string]Cluster {
	byID := make(map[string]Cluster, len(c.Clusters))
	for _, cluster := range c.Clusters {
		byID[cluster.ID] = cluster
	}
	return byID
}

// MaxTeamSizeForCluster resolves the effective team size cap for a cluster:
// the cluster's own cap when set, the config-level cap otherwise, nil when
// neither applies.
func (c *Config) MaxTeamSizeForCluster(clusterID string) (*int, error) {
	cluster, ok := c.ClustersByID()[clusterID]
	if !ok {
		return nil, errors.Errorf("cluster %q does not exist", clusterID)
	}
	if !cluster.Management.TeamSizeLimitEnabled() {
		return nil, nil
	}
	if cluster.maxTeamSize != nil {
		return cluster.maxTeamSize, nil
	}
	return c.MaxTeamSize, nil
}

type rawConfig struct {
	MaxTeamSize json.RawMessage `json:"max_team_size"`
	Topics      json.RawMessage `json:"topics"`
	Teamsets    json.RawMessage `json:"teamsets"`
}

type rawCluster struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	MaxTeamSize json.RawMessage `json:"max_team_size"`
	Management  string          `json:"management"`
	Visibility  string          `json:"visibility"`
}

// ParseTeamsConfig parses a course's raw teams configuration. Empty input
// means teams are disabled. Badly-configured clusters are skipped with a log,
// and later clusters reusing an id are dropped; only a malformed document, or
// one naming both topics and teamsets, is an error.
func ParseTeamsConfig(data []byte, logger core.Logger) (*Config, error) {
	if len(data) == 0 {
		return &Config{}, nil
	}
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "teams config must be a JSON object")
	}

	maxTeamSize := cleanMaxTeamSize(raw.MaxTeamSize)
	hasTopics, hasTeamsets := rawPresent(raw.Topics), rawPresent(raw.Teamsets)
	if hasTopics && hasTeamsets {
		return nil, errors.New("only one of topics and teamsets may be specified")
	}

	conf := Config{MaxTeamSize: maxTeamSize}
	switch {
	case hasTopics:
		clusters, err := loadClusters(raw.Topics, logger)
		if err != nil {
			return nil, err
		}
		conf.Scheme, conf.Clusters = SchemeTopics, clusters
	case hasTeamsets:
		clusters, err := loadClusters(raw.Teamsets, logger)
		if err != nil {
			return nil, err
		}
		conf.Scheme, conf.Clusters = SchemeTeamsets, clusters
	}
	return &conf, nil
}

func loadClusters(data json.RawMessage, logger core.Logger) ([]Cluster, error) {
	var rawClusters []json.RawMessage
	if err := json.Unmarshal(data, &rawClusters); err != nil {
		return nil, errors.Wrap(err, "topics/teamsets must be a list")
	}

	var clusters []Cluster
	seen := make(map[string]bool)
	for _, rawData := range rawClusters {
		cluster, err := parseCluster(rawData)
		if err != nil {
			logger.Error("parsing team cluster; skipping cluster", err)
			continue
		}
		if seen[cluster.ID] {
			logger.Error("duplicated cluster id; ignoring all clusters except the first with it",
				map[string]interface{}{"cluster_id": cluster.ID})
			continue
		}
		clusters = append(clusters, cluster)
		seen[cluster.ID] = true
	}
	return clusters, nil
}

func parseCluster(data json.RawMessage) (Cluster, error) {
	var raw rawCluster
	if err := json.Unmarshal(data, &raw); err != nil {
		return Cluster{}, errors.Wrap(err, "cluster must be a JSON object")
	}
	if !validClusterID.MatchString(raw.ID) {
		return Cluster{}, errors.Errorf("cluster id must match %s; is %q", validClusterID, raw.ID)
	}

	cluster := Cluster{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Management:  cleanManagement(raw.Management),
		Visibility:  cleanVisibility(raw.Visibility),
		maxTeamSize: cleanMaxTeamSize(raw.MaxTeamSize),
	}
	if cluster.Name == "" {
		cluster.Name = cluster.ID
	}
	return cluster, nil
}

// cleanMaxTeamSize keeps a non-negative integer size, dropping anything else.
// Zero is kept: it is a cap, not an absence of one.
func cleanMaxTeamSize(data json.RawMessage) *int {
	if !rawPresent(data) {
		return nil
	}
	var size int
	if err := json.Unmarshal(data, &size); err != nil || size < 0 {
		return nil
	}
	return &size
}

func cleanManagement(value string) Management {
	if m := Management(value); m == ManagementInstructor || m == ManagementStudent {
		return m
	}
	return ManagementStudent
}

func cleanVisibility(value string) Visibility {
	if v := Visibility(value); v == VisibilityPublic || v == VisibilityPrivate {
		return v
	}
	return VisibilityPublic
}

func rawPresent(data json.RawMessage) bool {
	return len(data) > 0 && string(data) != "null"
}
