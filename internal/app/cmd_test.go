package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"empty_defaults_to_serve", []string{}, CommandServe},
		{"serve", []string{"serve"}, CommandServe},
		{"migrate", []string{"migrate"}, CommandMigrate},
		{"migrate_with_action", []string{"migrate", "down"}, CommandMigrate},
		{"healthcheck", []string{"healthcheck"}, CommandHealthcheck},
		{"unknown_defaults_to_serve", []string{"worker"}, CommandServe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseMigrateAction(t *testing.T) {
	tests := []struct {
		args   []string
		want   MigrateAction
		wantOK bool
	}{
		{[]string{"migrate"}, MigrateUp, true},
		{[]string{"migrate", "up"}, MigrateUp, true},
		{[]string{"migrate", "down"}, MigrateDown, true},
		{[]string{"migrate", "version"}, MigrateVersion, true},
		{[]string{"migrate", "force"}, "", false},
	}

	for _, tt := range tests {
		got, ok := ParseMigrateAction(tt.args)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseMigrateAction(%v) = (%q, %v), want (%q, %v)", tt.args, got, ok, tt.want, tt.wantOK)
		}
	}
}
