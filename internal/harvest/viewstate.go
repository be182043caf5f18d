package harvest

import (
	"errors"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ViewState is the ASP.NET postback state pair every direct event must echo
// back.
type ViewState struct {
	State     string
	Generator string
}

var selHiddenInput = cascadia.MustCompile("input[type=hidden]")

// ExtractViewState pulls __VIEWSTATE and __VIEWSTATEGENERATOR from a parsed
// page.
func ExtractViewState(doc *html.Node) (ViewState, error) {
	var vs ViewState
	for _, n := range selHiddenInput.MatchAll(doc) {
		switch attrValue(n, "name") {
		case "__VIEWSTATE":
			vs.State = attrValue(n, "value")
		case "__VIEWSTATEGENERATOR":
			vs.Generator = attrValue(n, "value")
		}
	}
	if vs.State == "" || vs.Generator == "" {
		return ViewState{}, errors.New("viewstate inputs not found")
	}
	return vs, nil
}
