// Package pipeline turns table grids recovered from shipping documents into
// normalized record sets.
//
// Two workflows share the package:
//
//   - Invoices: [Locate] finds anchor rows in each grid, and an [Extractor]
//     applies a declarative [FieldRule] table to every block.
//   - Manifests: parent and child grids become record sets, are renamed with
//     [Normalize], joined on the waybill key by [Reconcile], split into
//     Master/Baby rows by [Expand] and ordered by [Project].
//
// Every stage is a pure function of its inputs. Configuration lives in
// [InvoiceProfile] and [ManifestProfile] values passed in by the caller.
package pipeline
