// Package store implements the relational backing store for the tenant
// chain: organizations, directories, accounts, groups, API keys, and
// application records, over database/sql with the pure-Go SQLite driver.
//
// Saves are transactional. Name-uniqueness checks and the directory
// default-invariant (exactly one default directory per organization) are
// check-then-act sequences, so they always run inside the same transaction
// as the write they guard.
package store
