package main

// UserRecord holds the directory attributes exported for one user account.
// ProxyAddresses stays multi-valued here; it is flattened to a single
// delimited string only when the report is written.
type UserRecord struct {
	SAMAccountName    string
	DisplayName       string
	GivenName         string
	Surname           string
	Mail              string
	ProxyAddresses    []string
	TelephoneNumber   string
	Mobile            string
	Title             string
	Department        string
	DistinguishedName string
}

// AugmentedUserRecord is a UserRecord plus one boolean per requested group,
// keyed by group name, true iff the user's logon name is a recursive member.
type AugmentedUserRecord struct {
	UserRecord
	Groups map[string]bool
}

// MembershipIndex maps a group name to the set of its member logon names,
// already recursively expanded. Built once per run, read-only afterwards.
type MembershipIndex map[string]map[string]struct{}
