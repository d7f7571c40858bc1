package model

// User represents a row in the `users` table.  The user_id is chosen
// by the customer at sign-up and is never generated by the database.
// Rows are immutable once created; bookings reference them by ID.
//
// Fields:
//  ID      – externally supplied primary key.
//  Name    – display name given at sign-up.
//  Contact – free-form contact string (usually a phone number).
type User struct {
    ID      uint64 // users.user_id
    Name    string // users.name
    Contact string // users.contact
}
