package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFlagValidationHappensBeforeBootstrap(t *testing.T) {
	cases := map[string]struct {
		args []string
		want string
	}{
		"non positive limit":  {[]string{"process-withdrawals", "--limit", "0"}, "--limit must be positive"},
		"negative retention":  {[]string{"purge-logs", "--older-than", "-1h"}, "--older-than must not be negative"},
		"admin without email": {[]string{"create-admin", "--password", "SecurePass123"}, `required flag(s) "email" not set`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := runCLI(tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRootCommandListsMaintenanceTasks(t *testing.T) {
	out, err := runCLI("--help")
	require.NoError(t, err)
	for _, name := range []string{"migrate", "seed-categories", "sweep", "purge-logs", "process-withdrawals", "create-admin"} {
		assert.Contains(t, out, name)
	}
}
