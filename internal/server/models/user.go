// Package models holds the persistent and transient records handled by the
// gophauth server.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
)

const (
	fieldLogin    = "login"
	fieldPassword = "password"
)

// User is the record stored under its login. Password always holds a digest,
// never plaintext. Attributes are the free-form fields set by updates; values
// are whatever JSON decoding yields (string, json.Number, bool, nil,
// map[string]any, []any).
type User struct {
	Login      string
	Password   string
	Attributes map[string]any
}

// Redacted returns a copy of u without the password digest.
func (u *User) Redacted() *User {
	if u == nil {
		return nil
	}
	return &User{Login: u.Login, Attributes: maps.Clone(u.Attributes)}
}

// MarshalJSON flattens the record into a single object:
// {"login": ..., "password": ..., <attributes>...}. An empty password is omitted.
func (u User) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(u.Attributes)+2)
	for k, v := range u.Attributes {
		m[k] = v
	}
	m[fieldLogin] = u.Login
	if u.Password != "" {
		m[fieldPassword] = u.Password
	} else {
		delete(m, fieldPassword)
	}
	return json.Marshal(m)
}

func (u *User) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("user record is null")
	}

	*u = User{}
	if v, ok := m[fieldLogin]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("login must be a string")
		}
		u.Login = s
	}
	if v, ok := m[fieldPassword]; ok {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("password must be a string")
		}
		u.Password = s
	}
	delete(m, fieldLogin)
	delete(m, fieldPassword)
	if len(m) > 0 {
		u.Attributes = m
	}
	return nil
}

// ParseUser decodes a stored record.
func ParseUser(b []byte) (*User, error) {
	u := &User{}
	if err := json.Unmarshal(b, u); err != nil {
		return nil, err
	}
	return u, nil
}
