// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"testing"
)

func TestNextCopyNameFirstFree(t *testing.T) {
	name, err := nextCopyName("editor", func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("nextCopyName() error = %v", err)
	}
	if name != "editor - Copy" {
		t.Errorf("nextCopyName() = %q, want %q", name, "editor - Copy")
	}
}

func TestNextCopyNameProbesNumbered(t *testing.T) {
	taken := map[string]bool{
		"editor - Copy":   true,
		"editor - Copy 1": true,
		"editor - Copy 2": true,
	}
	name, err := nextCopyName("editor", func(candidate string) (bool, error) {
		return taken[candidate], nil
	})
	if err != nil {
		t.Fatalf("nextCopyName() error = %v", err)
	}
	if name != "editor - Copy 3" {
		t.Errorf("nextCopyName() = %q, want %q", name, "editor - Copy 3")
	}
}

func TestNextCopyNameBounded(t *testing.T) {
	probes := 0
	_, err := nextCopyName("editor", func(string) (bool, error) {
		probes++
		return true, nil
	})
	if err == nil {
		t.Fatal("nextCopyName() should fail when every candidate is taken")
	}
	if probes != maxCopyProbes {
		t.Errorf("probed %d times, want %d", probes, maxCopyProbes)
	}
}

func TestNextCopyNamePropagatesError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := nextCopyName("editor", func(string) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("nextCopyName() error = %v, want %v", err, boom)
	}
}

func TestCIExactEscapesMetaCharacters(t *testing.T) {
	re := ciExact("ops (night)")
	if re.Pattern != `^ops \(night\)$` {
		t.Errorf("pattern = %q, want meta characters escaped", re.Pattern)
	}
	if re.Options != "i" {
		t.Errorf("options = %q, want %q", re.Options, "i")
	}
}
