package rewrite

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"playlistforge/internal/model"
	"gopkg.in/yaml.v3"
)

// outputPrefix is prepended to the username to form the output label, which
// in turn names the personalized playlist file.
const outputPrefix = "8k_"

type ConfigError struct {
	AppError model.AppError
	Cause    error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

type rawCredential struct {
	DNS      string `yaml:"dns"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ParseCredentials parses the credential set document (YAML or JSON list; a
// single object is also accepted for compatibility with older configs). The
// list must be non-empty and every set complete; anything less is fatal
// before any output is produced.
func ParseCredentials(source string, content string) ([]model.CredentialSet, error) {
	var raw []rawCredential
	if err := yamlDecodeStrict(content, &raw); err != nil {
		var single rawCredential
		if err2 := yamlDecodeStrict(content, &single); err2 != nil {
			return nil, &ConfigError{
				AppError: model.AppError{
					Code:    "CREDENTIALS_PARSE_ERROR",
					Message: "credentials document failed to parse",
					Stage:   "load_credentials",
					Source:  source,
				},
				Cause: err,
			}
		}
		raw = []rawCredential{single}
	}
	if len(raw) == 0 {
		return nil, validateError(source, "credential list is empty", "expected: a list of {dns, username, password}")
	}

	out := make([]model.CredentialSet, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		host := strings.TrimSpace(r.DNS)
		user := strings.TrimSpace(r.Username)
		pass := strings.TrimSpace(r.Password)
		if host == "" || user == "" || pass == "" {
			return nil, validateError(source,
				fmt.Sprintf("credential set %d: dns, username and password are all required", i+1), "")
		}
		if strings.ContainsAny(user, "/\\\r\n\x00") {
			return nil, validateError(source,
				fmt.Sprintf("credential set %d: username must not contain path separators or control chars", i+1), "")
		}
		// Output files are named from the username; duplicates would silently
		// overwrite one another.
		if _, dup := seen[user]; dup {
			return nil, validateError(source, fmt.Sprintf("duplicate username: %s", user), "")
		}
		seen[user] = struct{}{}

		out = append(out, model.CredentialSet{
			Host:        host,
			Username:    user,
			Password:    pass,
			OutputLabel: outputPrefix + user,
		})
	}
	return out, nil
}

func validateError(source, message, hint string) error {
	return &ConfigError{
		AppError: model.AppError{
			Code:    "CREDENTIALS_VALIDATE_ERROR",
			Message: message,
			Stage:   "load_credentials",
			Source:  source,
			Hint:    hint,
		},
	}
}

func yamlDecodeStrict(content string, out any) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	var extra any
	if err := dec.Decode(&extra); err == nil {
		return errors.New("multiple YAML documents are not allowed")
	} else if !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
