package main

// go get github.com/go-ldap/ldap/v3
// https://github.com/go-ldap/ldap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var ldapURL string
var ldapBindDN string
var ldapPass string
var ldapBaseDN string

// Member sets keyed by group DN so a group requested under two names is
// still only queried once.
var groupMemberCache *cache.Cache

// LDAP_MATCHING_RULE_IN_CHAIN: makes memberOf match through nested groups.
const matchingRuleInChain = "1.2.840.113556.1.4.1941"

var userAttributes = []string{"sAMAccountName", "displayName", "givenName", "sn", "mail",
	"proxyAddresses", "telephoneNumber", "mobile", "title", "department"}

func LDAPinitialize() error {
	var fields []string

	ldapConfig := viper.GetStringMapString("ldap")
	ldapURL = ldapConfig["url"]
	ldapBindDN = ldapConfig["binddn"]
	ldapBaseDN = ldapConfig["basedn"]

	x := viper.Get("ldap_password")
	if x != nil {
		ldapPass = x.(string)
	} else {
		ldapPass = ldapConfig["password"]
	}

	if len(ldapURL) == 0 {
		fields = append(fields, "url")
	}
	if len(ldapBindDN) == 0 {
		fields = append(fields, "binddn")
	}
	if len(ldapPass) == 0 {
		fields = append(fields, "password")
	}
	if len(ldapBaseDN) == 0 {
		fields = append(fields, "basedn")
	}
	if len(fields) > 0 {
		err := errors.New("in the ldap section, the config file is missing: " + strings.Join(fields, ","))
		return err
	}

	groupMemberCache = cache.New(5*time.Minute, 10*time.Minute)
	return nil
}

// Simply logs the error.  It exists so all ldap errors are outputted the same
// to make it easier for greping.
func ldapError(method string, ldapMethod string, e error) {
	log.Errorf("LDAPERROR - Method: %s LDAPmethod: %s Error: %s", method, ldapMethod, e)
}

// Caller MUST close connection when done.
func LDAPgetConnection() (*ldap.Conn, error) {

	l, err := ldap.DialURL(ldapURL)
	if err != nil {
		ldapError("LDAPgetConnection", "DialURL", err)
		return nil, err
	}
	err = l.Bind(ldapBindDN, ldapPass)
	if err != nil {
		ldapError("LDAPgetConnection", "Bind", err)
		return nil, err
	}

	return l, nil
}

// LDAPgetUsersInOUs fetches every user account below the given OUs.
func LDAPgetUsersInOUs(ous []string, con *ldap.Conn) ([]UserRecord, error) {
	var users []UserRecord

	for _, ou := range ous {
		searchReq := ldap.NewSearchRequest(ou, ldap.ScopeWholeSubtree, 0, 0, 0, false,
			"(&(objectCategory=person)(objectClass=user))", userAttributes,
			[]ldap.Control{ldap.NewControlPaging(1000)})
		result, err := con.SearchWithPaging(searchReq, 1000)
		if err != nil {
			ldapError("LDAPgetUsersInOUs", "SearchWithPaging", err)
			return nil, fmt.Errorf("searching OU %s: %w", ou, err)
		}
		for _, entry := range result.Entries {
			users = append(users, entryToUserRecord(entry))
		}
		log.WithFields(log.Fields{"ou": ou, "users": len(result.Entries)}).Debug("Fetched OU users.")
	}
	return users, nil
}

func entryToUserRecord(entry *ldap.Entry) UserRecord {
	var user UserRecord
	user.DistinguishedName = entry.DN
	user.SAMAccountName = entry.GetAttributeValue("sAMAccountName")
	user.DisplayName = entry.GetAttributeValue("displayName")
	user.GivenName = entry.GetAttributeValue("givenName")
	user.Surname = entry.GetAttributeValue("sn")
	user.Mail = entry.GetAttributeValue("mail")
	user.ProxyAddresses = entry.GetAttributeValues("proxyAddresses")
	user.TelephoneNumber = entry.GetAttributeValue("telephoneNumber")
	user.Mobile = entry.GetAttributeValue("mobile")
	user.Title = entry.GetAttributeValue("title")
	user.Department = entry.GetAttributeValue("department")
	return user
}

// LDAPgetGroupDN resolves a group name (sAMAccountName or CN) to its DN.
func LDAPgetGroupDN(group string, con *ldap.Conn) (string, error) {

	filter := fmt.Sprintf("(&(objectClass=group)(|(sAMAccountName=%s)(cn=%s)))",
		ldap.EscapeFilter(group), ldap.EscapeFilter(group))
	searchReq := ldap.NewSearchRequest(ldapBaseDN, ldap.ScopeWholeSubtree, 0, 0, 0, false,
		filter, []string{"dn"}, []ldap.Control{})

	result, err := con.Search(searchReq)
	if err != nil {
		ldapError("LDAPgetGroupDN", "Search", err)
		return "", err
	}
	if len(result.Entries) == 0 {
		return "", fmt.Errorf("group %s was not found below %s", group, ldapBaseDN)
	}
	if len(result.Entries) > 1 {
		return "", fmt.Errorf("multiple ldap entries (%d) were found for group %s", len(result.Entries), group)
	}
	return result.Entries[0].DN, nil
}

// LDAPgetGroupMembers returns the logon names of every user that is a member
// of the group, expanded through nested groups by the directory itself via
// the matching-rule-in-chain filter.
func LDAPgetGroupMembers(group string, con *ldap.Conn) ([]string, error) {

	dn, err := LDAPgetGroupDN(group, con)
	if err != nil {
		return nil, err
	}
	if cached, found := groupMemberCache.Get(dn); found {
		return cached.([]string), nil
	}

	filter := fmt.Sprintf("(&(objectCategory=person)(objectClass=user)(memberOf:%s:=%s))",
		matchingRuleInChain, ldap.EscapeFilter(dn))
	searchReq := ldap.NewSearchRequest(ldapBaseDN, ldap.ScopeWholeSubtree, 0, 0, 0, false,
		filter, []string{"sAMAccountName"}, []ldap.Control{ldap.NewControlPaging(1000)})
	result, err := con.SearchWithPaging(searchReq, 1000)
	if err != nil {
		ldapError("LDAPgetGroupMembers", "SearchWithPaging", err)
		return nil, err
	}

	members := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		members = append(members, entry.GetAttributeValue("sAMAccountName"))
	}
	groupMemberCache.Set(dn, members, cache.DefaultExpiration)
	return members, nil
}
