// Package models contains GORM persistence models that map to database tables.
// They are kept apart from the domain types so that the domain layer stays
// free of ORM tags.
//
//   - base.go: BaseModel and AggregateModel shared by every table
//   - obligation.go: payment_obligations
//   - split_plan.go: split_plans
//   - transaction.go: payment_transactions
//   - exception.go: reconciliation_exceptions
//   - contract.go: rental_contracts, a read model fed by the contract service
//
// Indexes declared here mirror the SQL migrations so that AutoMigrate-backed
// tests enforce the same uniqueness rules as production.
package models
