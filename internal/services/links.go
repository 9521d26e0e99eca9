package services

import (
	"net/url"
	"strings"
)

const (
	RoleHost      = "host"
	RoleCharacter = "character"
)

// LinkBuilder renders the public access links sent to players and hosts.
type LinkBuilder struct {
	BaseURL string
}

func NewLinkBuilder(baseURL string) LinkBuilder {
	return LinkBuilder{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Access returns <base>/<role>/<token>, with #section appended when set.
func (b LinkBuilder) Access(role, token, section string) string {
	link := b.BaseURL + "/" + role + "/" + url.PathEscape(token)
	if s := strings.TrimSpace(section); s != "" {
		link += "#" + url.PathEscape(s)
	}
	return link
}

func (b LinkBuilder) Host(token string) string {
	return b.Access(RoleHost, token, "")
}

func (b LinkBuilder) Character(token, section string) string {
	return b.Access(RoleCharacter, token, section)
}
