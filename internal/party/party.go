// Package party clusters the current roster into friend groups. Players
// whose friend lists reference each other, directly or transitively, end
// up in the same party.
package party

import (
	"slices"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/leighmacdonald/tf-sentry/internal/sid"
)

// Member is one roster entry fed into a rebuild. Friends holds the 64 bit
// id strings from the member's fetched friends list, empty when the
// profile is private or not yet fetched.
type Member struct {
	SteamID string
	Friends []string
}

// Party is one friend group of at least two present players, members
// sorted for stable comparison.
type Party []string

// Detector rebuilds the friendship graph from scratch on every update and
// answers indicator queries against the last computed party set. Not safe
// for concurrent use.
type Detector struct {
	nodes     []string
	adjacency map[string]map[string]struct{}
	parties   []Party
}

func NewDetector() *Detector {
	return &Detector{adjacency: map[string]map[string]struct{}{}}
}

// Rebuild replaces the graph with one node per roster member and one
// undirected edge per friendship where both sides are present. A friend
// list naming an absent player contributes nothing, as does a member with
// no friend data. Duplicate edges collapse.
func (d *Detector) Rebuild(members []Member) {
	d.nodes = d.nodes[:0]
	d.adjacency = map[string]map[string]struct{}{}

	for _, member := range members {
		if _, known := d.adjacency[member.SteamID]; known {
			continue
		}
		d.nodes = append(d.nodes, member.SteamID)
		d.adjacency[member.SteamID] = map[string]struct{}{}
	}

	for _, member := range members {
		for _, friend64 := range member.Friends {
			friendID, errConv := sid.To32(friend64)
			if errConv != nil {
				continue
			}
			if _, present := d.adjacency[friendID]; !present || friendID == member.SteamID {
				continue
			}
			d.adjacency[member.SteamID][friendID] = struct{}{}
			d.adjacency[friendID][member.SteamID] = struct{}{}
		}
	}

	d.findParties()
}

// findParties labels connected components via BFS over nodes in insertion
// order, keeping only components with two or more members.
func (d *Detector) findParties() {
	d.parties = d.parties[:0]
	visited := make(map[string]bool, len(d.nodes))

	for _, start := range d.nodes {
		if visited[start] {
			continue
		}

		var component Party
		queue := []string{start}
		visited[start] = true

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			component = append(component, current)

			for neighbor := range d.adjacency[current] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}

		if len(component) < 2 {
			continue
		}

		slices.Sort(component)
		d.parties = append(d.parties, component)
	}
}

// Parties returns the friend groups computed by the last Rebuild.
func (d *Detector) Parties() []Party {
	return d.parties
}

// PartyOf returns the members of the party containing the given id.
func (d *Detector) PartyOf(steamID string) (Party, bool) {
	for _, group := range d.parties {
		if slices.Contains(group, steamID) {
			return group, true
		}
	}

	return nil, false
}

// Indicator returns the marker for a partied player: a star when the
// querying self shares the party, a square otherwise, colored by party
// index. Returns false for players outside any party.
func (d *Detector) Indicator(steamID steamid.SteamID, self steamid.SteamID) (Indicator, bool) {
	id32 := sid.Format32(steamID)
	for idx, group := range d.parties {
		if !slices.Contains(group, id32) {
			continue
		}

		symbol := SymbolOther
		if self.Valid() && slices.Contains(group, sid.Format32(self)) {
			symbol = SymbolSelf
		}

		return Indicator{Symbol: symbol, Color: palette[idx%len(palette)]}, true
	}

	return Indicator{}, false
}
