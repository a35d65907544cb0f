package devserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xdbsoft/couchrepo/api"
)

//revisionSeq returns the generation number N of a revision "N-hash", or 0
func revisionSeq(rev string) int {
	i := strings.IndexByte(rev, '-')
	if i <= 0 {
		return 0
	}
	n, err := strconv.Atoi(rev[:i])
	if err != nil {
		return 0
	}
	return n
}

//nextRevision derives the revision following prev for the given content
func nextRevision(prev string, deleted bool, content api.Map) (string, error) {

	h := sha1.New()
	h.Write([]byte(prev))
	if deleted {
		h.Write([]byte{0})
	}
	if err := json.NewEncoder(h).Encode(content); err != nil {
		return "", err
	}

	return fmt.Sprintf("%d-%s", revisionSeq(prev)+1, hex.EncodeToString(h.Sum(nil))[:32]), nil
}
