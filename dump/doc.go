/*
Package dump provides I/O operations for collected states of the investment
contract ledger.

Snapshots of the global contract state along with all investor records are
useful to audit the ledger (e.g. to check that the total value locked matches
the sum of investor balances) and to compare the ledger at different heights.

The package works with dumps stored in the file system using human-readable
encoding.
*/
package dump
