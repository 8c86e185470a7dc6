package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// GravatarURL derives the default avatar for an email. The address is
// trimmed and lowercased per the Gravatar convention; account lookup
// elsewhere stays case-sensitive. Pure function, nothing is fetched, so
// registration never blocks on the avatar host.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
