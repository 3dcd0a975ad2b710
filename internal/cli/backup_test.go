package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backupIDs(out string) []string {
	var ids []string
	for _, m := range backupIDPattern.FindAllStringSubmatch(out, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func TestBackupCreateListPrune(t *testing.T) {
	r := newRunner(t)
	r.env["CATALOG_BACKUP_MAX_COUNT"] = "2"
	r.add("Chair", "Attic")

	for range 3 {
		assert.Regexp(t, backupIDPattern, r.mustRun("backup", "create"))
	}

	out := r.mustRun("backup", "list")
	assert.Contains(t, out, "Found 2 backup(s)")

	out = r.mustRun("backup", "prune", "--max", "1")
	assert.Contains(t, out, "Deleted 1 backup(s), keeping at most 1")
	assert.Contains(t, r.mustRun("backup", "list"), "Found 1 backup(s)")

	res := r.run("backup", "prune", "--max", "-1")
	assert.Equal(t, ExitCommandError, res.code())
}

func TestBackupRestore(t *testing.T) {
	r := newRunner(t)
	id := r.add("Chair", "Attic")
	r.add("Lamp", "Desk")

	ids := backupIDs(r.mustRun("backup", "create"))
	require.Len(t, ids, 1)

	r.mustRun("delete", id)
	r.add("Rug", "Hall")

	// без терминала нужен --yes
	res := r.run("backup", "restore", ids[0])
	assert.Equal(t, ExitCommandError, res.code())

	out := r.mustRun("backup", "restore", ids[0], "--yes")
	assert.Contains(t, out, "Restored 2 item(s) from "+ids[0])

	list := r.mustRun("list")
	assert.Contains(t, list, "Chair @ Attic")
	assert.NotContains(t, list, "Rug")

	// состояние до восстановления тоже сохранено
	assert.Contains(t, r.mustRun("backup", "list"), "Found 2 backup(s)")

	res = r.run("backup", "restore", "bak-missing", "--yes")
	assert.Equal(t, ExitFailure, res.code())
}

func TestBackupRunOnce(t *testing.T) {
	r := newRunner(t)
	r.add("Chair", "Attic")

	assert.Contains(t, r.mustRun("backup", "run", "--once"), "Backup created")
	assert.Contains(t, r.mustRun("backup", "run", "--once"), "No backup due")

	r.env["CATALOG_BACKUP_INTERVAL"] = "1ns"
	assert.Contains(t, r.mustRun("backup", "run", "--once"), "Backup created")
}
