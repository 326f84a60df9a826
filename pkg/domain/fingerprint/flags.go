package fingerprint

import (
	"fmt"
	"sort"
)

type Flag string

const (
	FlagNewAccount           Flag = "new_account"
	FlagSimilarUsername      Flag = "similar_username"
	FlagDuplicateFingerprint Flag = "duplicate_fingerprint"
	FlagBlacklisted          Flag = "blacklisted"
	FlagAutoBanned           Flag = "auto_banned"
)

func (f Flag) Valid() bool {
	switch f {
	case FlagNewAccount, FlagSimilarUsername, FlagDuplicateFingerprint, FlagBlacklisted, FlagAutoBanned:
		return true
	default:
		return false
	}
}

func ParseFlag(value string) (Flag, error) {
	f := Flag(value)
	if !f.Valid() {
		return "", fmt.Errorf("invalid fingerprint flag %q", value)
	}
	return f, nil
}

// Flags is a sorted set of tags. The zero value is an empty set.
type Flags []Flag

func (fs Flags) Has(flag Flag) bool {
	i := sort.Search(len(fs), func(i int) bool { return fs[i] >= flag })
	return i < len(fs) && fs[i] == flag
}

// Add returns the set with flag inserted, keeping it sorted.
func (fs Flags) Add(flag Flag) Flags {
	i := sort.Search(len(fs), func(i int) bool { return fs[i] >= flag })
	if i < len(fs) && fs[i] == flag {
		return fs
	}
	out := make(Flags, 0, len(fs)+1)
	out = append(out, fs[:i]...)
	out = append(out, flag)
	return append(out, fs[i:]...)
}

func (fs Flags) Remove(flag Flag) Flags {
	out := make(Flags, 0, len(fs))
	for _, f := range fs {
		if f != flag {
			out = append(out, f)
		}
	}
	return out
}

func (fs Flags) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
