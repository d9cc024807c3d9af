package querygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnforceTenantScopeNoOpWhenAlreadyScoped(t *testing.T) {
	sql := "SELECT * FROM payment WHERE user_id = 'tenant-1'"
	assert.Equal(t, sql, enforceTenantScope(sql, "tenant-1"))
}

func TestEnforceTenantScopeExtendsExistingWhere(t *testing.T) {
	sql := "SELECT * FROM payment WHERE amount > 10"
	out := enforceTenantScope(sql, "tenant-1")
	assert.Contains(t, out, "user_id = 'tenant-1'")
	assert.Contains(t, out, "WHERE user_id = 'tenant-1' AND amount > 10")
}

func TestEnforceTenantScopeInsertsBeforeOrderBy(t *testing.T) {
	sql := "SELECT * FROM payment ORDER BY amount DESC"
	out := enforceTenantScope(sql, "tenant-1")
	assert.Contains(t, out, "WHERE user_id = 'tenant-1'")
	assert.True(t, indexOf(out, "WHERE") < indexOf(out, "ORDER BY"))
}

func TestEnforceTenantScopeAppendsWhenNoWhereOrTail(t *testing.T) {
	sql := "SELECT * FROM payment"
	out := enforceTenantScope(sql, "tenant-1")
	assert.Contains(t, out, "WHERE user_id = 'tenant-1'")
}

func TestEnforceTenantScopeEscapesQuotes(t *testing.T) {
	sql := "SELECT * FROM payment"
	out := enforceTenantScope(sql, "o'brien")
	assert.Contains(t, out, "user_id = 'o''brien'")
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
