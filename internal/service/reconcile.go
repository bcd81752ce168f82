package service

import "github.com/telavision/epgvault/internal/models"

// Partition is the result of reconciling one secondary feed against
// the accumulated known-channel-id set.
type Partition struct {
	// Known channels already exist in the catalog; only their package
	// membership is recorded, their channel rows are not re-inserted.
	Known []models.Channel
	// Unknown channels are net-new: channel row plus membership.
	Unknown []models.Channel
	// Programs belonging to unknown channels. Programs of known
	// channels duplicate the schedule already loaded for them and are
	// dropped.
	Programs []models.Program
}

// Reconcile partitions a secondary feed's channels and programs
// against the known-id set. It is pure: the caller threads the
// accumulator through the ordered feed list by extending known with
// the returned Unknown ids, so a channel first seen in one secondary
// feed is known to the next.
func Reconcile(known map[string]struct{}, channels []models.Channel, programs []models.Program) Partition {
	var part Partition
	for _, ch := range channels {
		if _, ok := known[ch.ChannelID]; ok {
			part.Known = append(part.Known, ch)
		} else {
			part.Unknown = append(part.Unknown, ch)
		}
	}
	for _, pr := range programs {
		if _, ok := known[pr.ChannelID]; !ok {
			part.Programs = append(part.Programs, pr)
		}
	}
	return part
}

// ExtendKnown adds the partition's unknown channel ids to the
// accumulator for the next feed in sequence.
func (p Partition) ExtendKnown(known map[string]struct{}) {
	for _, ch := range p.Unknown {
		known[ch.ChannelID] = struct{}{}
	}
}

func channelIDs(channels []models.Channel) []string {
	ids := make([]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ChannelID
	}
	return ids
}
