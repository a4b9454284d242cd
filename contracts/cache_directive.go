package contracts

import (
	"fmt"
	"regexp"
	"strconv"
)

var maxAgePattern = regexp.MustCompile(`^\s*max-age\s*=\s*(\d+)\s*$`)
var noCachePattern = regexp.MustCompile(`^\s*no-cache\s*$`)

// CacheDirective tells a client how long a response may be cached.
// Its textual form follows the HTTP cache-control syntax so it can
// be copied verbatim into an outbound protocol header.
type CacheDirective struct {
	noCache bool
	maxAge  uint64
}

// MaxAgeDirective creates a directive allowing caching for the given
// number of seconds.
func MaxAgeDirective(seconds uint64) CacheDirective {
	return CacheDirective{maxAge: seconds}
}

// NoCacheDirective creates a directive forbidding caching.
func NoCacheDirective() CacheDirective {
	return CacheDirective{noCache: true}
}

// ParseCacheDirective parses the textual form produced by String.
func ParseCacheDirective(s string) (CacheDirective, error) {
	if m := maxAgePattern.FindStringSubmatch(s); m != nil {
		seconds, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return CacheDirective{}, fmt.Errorf("malformed max-age value %q: %w", m[1], ErrInvalidArgument)
		}
		return MaxAgeDirective(seconds), nil
	}
	if noCachePattern.MatchString(s) {
		return NoCacheDirective(), nil
	}
	return CacheDirective{}, fmt.Errorf("unsupported cache directive %q: %w", s, ErrInvalidArgument)
}

// IsCachingAllowed reports whether a response carrying this
// directive may be cached at all.
func (c CacheDirective) IsCachingAllowed() bool {
	return !c.noCache
}

// MaxAge returns the maximum caching period in seconds. It is zero
// for no-cache directives.
func (c CacheDirective) MaxAge() uint64 {
	if c.noCache {
		return 0
	}
	return c.maxAge
}

func (c CacheDirective) String() string {
	if c.noCache {
		return "no-cache"
	}
	return fmt.Sprintf("max-age = %d", c.maxAge)
}
