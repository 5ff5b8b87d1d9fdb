// Package dsn formats connection strings for logs and health output.
package dsn

import (
	"fmt"
	"net/url"
)

// Mask hides the credentials and query of a connection URL.
func Mask(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "*****"
	}
	if u.User != nil {
		return fmt.Sprintf("%s://*****@%s%s", u.Scheme, u.Host, u.Path)
	}
	return fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)
}
