package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// BuildMembershipIndex resolves every requested group to its recursive member
// set. Group names are deduplicated and sorted first so a group repeated in
// the config is looked up once. Any lookup failure aborts the build; a report
// with missing group columns is worse than no report.
func BuildMembershipIndex(groups []string, resolve func(group string) ([]string, error)) (MembershipIndex, error) {
	index := make(MembershipIndex)
	for _, group := range dedupStrings(groups) {
		members, err := resolve(group)
		if err != nil {
			return nil, fmt.Errorf("resolving members of group %s: %w", group, err)
		}
		index.Add(group, members)
		log.WithFields(log.Fields{"group": group, "members": len(members)}).Debug("Resolved group membership.")
	}
	return index, nil
}

// Add accumulates members into the set for group. A group supplied twice
// grows one set rather than replacing the earlier result.
func (index MembershipIndex) Add(group string, members []string) {
	set, ok := index[group]
	if !ok {
		set = make(map[string]struct{}, len(members))
		index[group] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

// GroupNames returns the indexed group names sorted, one per output column.
func (index MembershipIndex) GroupNames() []string {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	return dedupStrings(names)
}

// Flags reports, for every indexed group, whether joinKey is a member.
// The membership test is exact and case-sensitive; empty groups yield false.
func (index MembershipIndex) Flags(joinKey string) map[string]bool {
	flags := make(map[string]bool, len(index))
	for group, members := range index {
		_, member := members[joinKey]
		flags[group] = member
	}
	return flags
}

// AugmentUser attaches the membership flags for user's logon name. If a group
// name collides with a native attribute column the group column wins; that is
// a config mistake to fix, not something to resolve quietly.
func AugmentUser(user UserRecord, index MembershipIndex) AugmentedUserRecord {
	return AugmentedUserRecord{
		UserRecord: user,
		Groups:     index.Flags(user.SAMAccountName),
	}
}

// AugmentUsers is row-preserving: every input user produces exactly one
// augmented record, never filtered or duplicated.
func AugmentUsers(users []UserRecord, index MembershipIndex) []AugmentedUserRecord {
	augmented := make([]AugmentedUserRecord, 0, len(users))
	for _, user := range users {
		augmented = append(augmented, AugmentUser(user, index))
	}
	return augmented
}
