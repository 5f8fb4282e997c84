// Package domain defines the core business types for the CRM Atlas platform.
//
// Everything here is a pure value object: no database handles, no HTTP
// concerns, no behavior beyond small pure methods. These types are the
// shared language between handlers, services, and repositories.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are fine (metadata, not behavior)
//   - Pure helper methods (Covers, Rank, RateFor) are fine
//   - Enums and their constants belong here
package domain
