package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func parse(t *testing.T, data string) *Config {
	t.Helper()
	conf, err := ParseTeamsConfig([]byte(data), nopLogger{})
	require.NoError(t, err)
	return conf
}

func Test_ParseTeamsConfig_emptyIsDisabled(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no data", ""},
		{"empty object", `{}`},
		{"size only", `{"max_team_size": 5}`},
		{"empty teamsets", `{"teamsets": []}`},
		{"null topics", `{"topics": null, "random_key": 88}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := parse(t, tt.data)
			assert.False(t, conf.Enabled())
		})
	}
}

func Test_ParseTeamsConfig_topics(t *testing.T) {
	conf := parse(t, `{
		"max_team_size": 5,
		"topics": [
			{"id": "bananas", "max_team_size": 10, "management": "student", "visibility": "private"},
			{"id": "bokonism", "name": "BOKONISM", "description": "Busy busy busy",
			 "management": "instructor", "max_team_size": 2},
			{"id": "bananas", "name": "All about Bananas", "description": "Not to be confused with bandanas"}
		]
	}`)

	assert.True(t, conf.Enabled())
	assert.Equal(t, SchemeTopics, conf.Scheme)
	require.NotNil(t, conf.MaxTeamSize)
	assert.Equal(t, 5, *conf.MaxTeamSize)

	// the duplicated id is dropped, first wins
	require.Len(t, conf.Clusters, 2)

	bananas := conf.Clusters[0]
	assert.Equal(t, "bananas", bananas.ID)
	assert.Equal(t, "bananas", bananas.Name) // name falls back to id
	assert.Equal(t, "", bananas.Description)
	assert.Equal(t, ManagementStudent, bananas.Management)
	assert.Equal(t, VisibilityPrivate, bananas.Visibility)
	require.NotNil(t, bananas.MaxTeamSize())
	assert.Equal(t, 10, *bananas.MaxTeamSize())

	bokonism := conf.Clusters[1]
	assert.Equal(t, "BOKONISM", bokonism.Name)
	assert.Equal(t, "Busy busy busy", bokonism.Description)
	assert.Equal(t, ManagementInstructor, bokonism.Management)
	assert.Equal(t, VisibilityPublic, bokonism.Visibility)
	// instructor management ignores the cluster's own size cap
	assert.Nil(t, bokonism.MaxTeamSize())
}

func Test_ParseTeamsConfig_teamsets(t *testing.T) {
	conf := parse(t, `{
		"teamsets": [
			{"name": "Assignment about existence"},
			{"id": "Not a slug.", "name": "Assignment about slugs"},
			{"id": "horses", "max_team_size": -1000, "management": "matrix",
			 "visibility": "", "extra_key": "ignored"}
		]
	}`)

	// teamsets parse but stay disabled
	assert.False(t, conf.Enabled())
	assert.Equal(t, SchemeTeamsets, conf.Scheme)

	// clusters without a valid slug id are skipped; the surviving one gets
	// fallbacks for every invalid field
	require.Len(t, conf.Clusters, 1)
	horses := conf.Clusters[0]
	assert.Equal(t, "horses", horses.ID)
	assert.Equal(t, "horses", horses.Name)
	assert.Equal(t, ManagementStudent, horses.Management)
	assert.Equal(t, VisibilityPublic, horses.Visibility)
	assert.Nil(t, horses.MaxTeamSize())
}

func Test_ParseTeamsConfig_badData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not an object", `"not-an-object"`},
		{"both schemes", `{"topics": [{"id": "a-topic"}], "teamsets": [{"id": "a-teamset"}]}`},
		{"topics not a list", `{"topics": "not-a-list"}`},
		{"teamsets not a list", `{"teamsets": {"also-not": "a-list"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTeamsConfig([]byte(tt.data), nopLogger{})
			assert.Error(t, err)
		})
	}
}

func Test_Config_MaxTeamSizeForCluster(t *testing.T) {
	conf := parse(t, `{
		"max_team_size": 5,
		"topics": [
			{"id": "capped", "max_team_size": 10},
			{"id": "zero-capped", "max_team_size": 0},
			{"id": "uncapped"},
			{"id": "managed", "management": "instructor", "max_team_size": 3}
		]
	}`)

	size, err := conf.MaxTeamSizeForCluster("capped")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.Equal(t, 10, *size)

	// zero is a cap, not an absence of one
	size, err = conf.MaxTeamSizeForCluster("zero-capped")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.Equal(t, 0, *size)

	// falls back to the config-level cap
	size, err = conf.MaxTeamSizeForCluster("uncapped")
	require.NoError(t, err)
	require.NotNil(t, size)
	assert.Equal(t, 5, *size)

	// instructor-managed clusters have no cap at all
	size, err = conf.MaxTeamSizeForCluster("managed")
	require.NoError(t, err)
	assert.Nil(t, size)

	_, err = conf.MaxTeamSizeForCluster("nope")
	assert.Error(t, err)
}
