/*
Package ldap provides the directory client used to resolve POSIX identities.

# Connection Management

NewClient returns a DirectoryClient holding at most one connection to the
configured server. The connection is dialed on the first Bind, reused while
it is open and re-dialed after it is lost:

  - ldap:// on LDAPPort, or ldaps:// on LDAPSPort when UseSSL is set
  - Dial retries with exponential backoff
  - Simple bind, or unauthenticated bind when the password is empty

# Searching

Search streams entries from the server through an Entries sequence. The
search starts when the sequence is ranged over; errors reported by the
server are yielded last, with a nil entry.

	for entry, err := range entries {
		if err != nil {
			return err
		}
		uid := entry.GetAttributeValue("uid")
		_ = uid
	}

# Error Handling

Dial, bind and search failures are returned as *ConnectionError. LDAPError
and GetErrorCategory classify result codes for log fields.
*/
package ldap
