package sample

import "fmt"

// Version is the application version.
const Version = "1.0.0"

// Base is a base struct.
type Base struct {
	ID int
}

// Describe reports the record ID.
// @return string the description
func (b Base) Describe() string {
	return fmt.Sprint(b.ID)
}

// User is a complex struct.
type User struct {
	Base
	Name, Nickname string `json:"name"`
	Age            int    `json:"age"`
}

// Handler is an interface.
type Handler interface {
	fmt.Stringer
	// Handle processes one message.
	// @param string $ctx the request context
	Handle(ctx string, data interface{}) (int, error)
	Close()
}

// MyFunc is a function.
func MyFunc(a int, b string) bool {
	return true
}

// Rename changes the display name.
//
// @param string $name the new name
// @return bool whether the name changed
func (u *User) Rename(name string) bool {
	changed := u.Name != name
	u.Name = name
	return changed
}

func (u *User) Greet() {
	fmt.Println(u.Name)
}

// Set is generic.
type Set[T comparable] map[T]struct{}

// Add inserts v.
func (s Set[T]) Add(v T) {
	s[v] = struct{}{}
}
