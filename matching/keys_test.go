package matching_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/findcrush/campus-crush-api/matching"
)

func TestChannelIDSymmetric(t *testing.T) {
	assert.Equal(t, matching.ChannelID("alice", "bob"), matching.ChannelID("bob", "alice"))
	assert.Equal(t, "alice_bob", matching.ChannelID("bob", "alice"))
}

func TestChannelIDDistinctPairs(t *testing.T) {
	assert.NotEqual(t, matching.ChannelID("alice", "bob"), matching.ChannelID("alice", "carol"))
	assert.NotEqual(t, matching.ChannelID("alice", "bob"), matching.ChannelID("bob", "carol"))
}

func TestPairKeyMatchesChannelID(t *testing.T) {
	assert.Equal(t, matching.ChannelID("u1", "u2"), matching.PairKey("u2", "u1"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "jane,doe@campus,edu", matching.SanitizeEmail("jane.doe@campus.edu"))
	assert.Equal(t, "nodots@campusedu", matching.SanitizeEmail("nodots@campusedu"))
	assert.Equal(t, "", matching.SanitizeEmail(""))
}
