// Package ir provides the shared data types for bootsel.
//
// This package contains type definitions and the canonical serialization used
// for content hashing. All other internal packages import ir; ir imports
// nothing internal.
//
// Key design constraints:
//   - Property values are plain strings compared byte-for-byte
//   - Tuple order always follows Manifest.Properties declaration order
//   - All JSON tags use snake_case
//   - Trace ordering uses logical seq numbers, never wall-clock timestamps
package ir
