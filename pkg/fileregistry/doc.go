// Package fileregistry tracks which pack owns each installed file and the
// checksum the file had when it was written.
//
// The registry is bookkeeping, not gatekeeping: a corrupt registry file is
// recovered from its backup, rebuilt from the installed packs ledger or
// started over, and lookups of unknown paths return empty results. Only
// registering a file that does not exist fails.
package fileregistry
