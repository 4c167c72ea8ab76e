/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"reflect"
	"testing"
)

func TestParseEnum(t *testing.T) {
	tests := []struct {
		desc string
		want []string
	}{
		{"enum('red','green','it''s blue')", []string{"red", "green", "it's blue"}},
		{"ENUM('a')", []string{"a"}},
		{"varchar(255)", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseEnum(tt.desc); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseEnum(%q) = %v, want %v", tt.desc, got, tt.want)
		}
	}
}
