package config

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var hostLabelRegexp = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)

// ValidateMask checks that mask is "*", "*.domain", "host" or "host:port".
func ValidateMask(mask string) error {
	err := validation.Validate(mask,
		validation.Required,
		validation.By(checkMask),
	)
	if err != nil {
		return &ConfigurationError{Mask: mask, Err: err}
	}
	return nil
}

func checkMask(value interface{}) error {
	mask, _ := value.(string)
	if mask == Wildcard {
		return nil
	}

	host := mask
	if strings.HasPrefix(host, "*.") {
		host = host[2:]
		if strings.Contains(host, ":") {
			return errors.New("wildcard masks cannot carry a port")
		}
	}
	if h, p, ok := strings.Cut(host, ":"); ok {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return errors.New("port must be a number between 1 and 65535")
		}
		host = h
	}

	for _, label := range strings.Split(host, ".") {
		if !hostLabelRegexp.MatchString(label) {
			return errors.New("must be a host name, a *.domain pattern, or *")
		}
	}
	return nil
}
