package registry

import "fmt"

// Redis key pattern helpers
//
// All keys are namespaced by environment name so that several registry
// environments can coexist on a single Redis server.
//
// Key pattern: boardreg:{env_name}:{entity}:{id}

// BoardKey returns the Redis key for a job board record hash.
// Pattern: boardreg:{env_name}:board:{natural_key}
func BoardKey(envName, naturalKey string) string {
	return fmt.Sprintf("boardreg:%s:board:%s", envName, naturalKey)
}

// BoardSetKey returns the Redis key for the set of all natural keys in an
// environment. This set is the "get all" index.
// Pattern: boardreg:{env_name}:boards
func BoardSetKey(envName string) string {
	return fmt.Sprintf("boardreg:%s:boards", envName)
}

// BoardByIDKey returns the Redis key for the storageID -> naturalKey
// secondary index entry.
// Pattern: boardreg:{env_name}:board_by_id:{storage_id}
func BoardByIDKey(envName, storageID string) string {
	return fmt.Sprintf("boardreg:%s:board_by_id:%s", envName, storageID)
}
