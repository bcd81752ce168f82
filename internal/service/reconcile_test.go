package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telavision/epgvault/internal/models"
)

func ch(id string) models.Channel {
	return models.Channel{ChannelID: id, Name: "Channel " + id}
}

func pr(channelID string) models.Program {
	return models.Program{ChannelID: channelID, Title: "on " + channelID}
}

func idSet(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestReconcilePartitionsChannels(t *testing.T) {
	known := idSet("a", "b")
	part := Reconcile(known,
		[]models.Channel{ch("a"), ch("c"), ch("b"), ch("d")},
		nil,
	)

	assert.Equal(t, []models.Channel{ch("a"), ch("b")}, part.Known)
	assert.Equal(t, []models.Channel{ch("c"), ch("d")}, part.Unknown)

	// known ∪ unknown covers the input, known ∩ unknown is empty.
	assert.Len(t, part.Known, 2)
	assert.Len(t, part.Unknown, 2)
	for _, k := range part.Known {
		for _, u := range part.Unknown {
			assert.NotEqual(t, k.ChannelID, u.ChannelID)
		}
	}
}

func TestReconcileDropsProgramsOfKnownChannels(t *testing.T) {
	known := idSet("a")
	part := Reconcile(known,
		[]models.Channel{ch("a"), ch("b")},
		[]models.Program{pr("a"), pr("b"), pr("a"), pr("b")},
	)

	require.Len(t, part.Programs, 2)
	for _, p := range part.Programs {
		assert.Equal(t, "b", p.ChannelID)
	}
}

func TestReconcileEmptyBase(t *testing.T) {
	part := Reconcile(idSet(),
		[]models.Channel{ch("a")},
		[]models.Program{pr("a")},
	)
	assert.Empty(t, part.Known)
	assert.Len(t, part.Unknown, 1)
	assert.Len(t, part.Programs, 1)
}

func TestReconcileAccumulatesAcrossFeeds(t *testing.T) {
	// "x" is absent from the base but appears in both secondary feeds.
	known := idSet("a")

	fr := Reconcile(known, []models.Channel{ch("a"), ch("x")}, []models.Program{pr("x")})
	require.Len(t, fr.Unknown, 1)
	assert.Len(t, fr.Programs, 1)
	fr.ExtendKnown(known)

	// The next feed in sequence must treat "x" as known: no second
	// channel row, no duplicate schedule rows.
	tnt := Reconcile(known, []models.Channel{ch("x")}, []models.Program{pr("x")})
	assert.Len(t, tnt.Known, 1)
	assert.Empty(t, tnt.Unknown)
	assert.Empty(t, tnt.Programs)
}
