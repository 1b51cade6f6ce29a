package dico

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nizox/dico/i18n"
)

// issueAt creates an Issue at the given path with a translated message.
func issueAt(path, code string, params map[string]any) Issue {
	var data map[string]string
	if len(params) > 0 {
		data = make(map[string]string, len(params))
		for k, v := range params {
			data[k] = fmt.Sprint(v)
		}
	}
	return Issue{Path: path, Code: code, Message: i18n.T(code, data), Params: params}
}

// fieldToken escapes a field name as a JSON Pointer reference token (RFC 6901).
func fieldToken(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
}

func indexToken(i int) string { return strconv.Itoa(i) }

// rebase moves child issues under the given reference token.
func rebase(token string, child Issues) Issues {
	if len(child) == 0 {
		return nil
	}
	base := "/" + token
	out := make(Issues, 0, len(child))
	for _, it := range child {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}
