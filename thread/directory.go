//go:generate go run go.uber.org/mock/mockgen -source=directory.go -destination=../mocks/mock_directory.go -package=mocks
package thread

// Directory resolves display names and avatars. It is read outside any
// thread transaction.
type Directory interface {
	ContactName(contactID string) (string, bool)
	ContactAvatar(contactID string) ([]byte, bool)
	GroupAvatar(groupID string) ([]byte, bool)
}
