package connection

import "strings"

// MaxFamilyMembers caps the secondary Steam accounts stored per user.
const MaxFamilyMembers = 3

// FamilySet is an insertion-ordered set of SteamIDs.
type FamilySet struct {
	ids  []string
	seen map[string]struct{}
}

func NewFamilySet(ids ...string) *FamilySet {
	s := &FamilySet{seen: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add appends id unless it is blank or already present. Reports whether it was added.
func (s *FamilySet) Add(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Remove drops id, keeping the order of the rest. Reports whether it was present.
func (s *FamilySet) Remove(id string) bool {
	id = strings.TrimSpace(id)
	if _, ok := s.seen[id]; !ok {
		return false
	}
	delete(s.seen, id)
	for i, v := range s.ids {
		if v == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Truncate keeps the first n members.
func (s *FamilySet) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if len(s.ids) <= n {
		return
	}
	for _, id := range s.ids[n:] {
		delete(s.seen, id)
	}
	s.ids = s.ids[:n]
}

func (s *FamilySet) Len() int { return len(s.ids) }

// IDs returns a copy of the members in insertion order.
func (s *FamilySet) IDs() []string {
	return append([]string{}, s.ids...)
}

// String is the stored STEAM_FAMILY value.
func (s *FamilySet) String() string {
	return strings.Join(s.ids, ",")
}

// ParseFamilyIDs splits a stored or submitted comma separated list.
func ParseFamilyIDs(csv string) []string {
	return NewFamilySet(strings.Split(csv, ",")...).IDs()
}

// UpdateFamilyIDs unions the ids in csv into existing and keeps the first
// MaxFamilyMembers; overflow is dropped silently.
func UpdateFamilyIDs(existing []string, csv string) []string {
	s := NewFamilySet(existing...)
	for _, id := range strings.Split(csv, ",") {
		s.Add(id)
	}
	s.Truncate(MaxFamilyMembers)
	return s.IDs()
}
