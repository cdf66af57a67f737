package preview

import (
	"bytes"
	_ "embed"
	"html/template"
	"net"
	"strconv"
	ttemplate "text/template"
	"time"

	ferrors "git.home.luguber.info/inful/streamsite/internal/foundation/errors"
	"git.home.luguber.info/inful/streamsite/internal/minify"
)

// PingInterval is how often the browser pings the reload socket.
const PingInterval = 5 * time.Second

//go:embed hot_reload.js.tmpl
var hotReloadSource string

var hotReloadTemplate = ttemplate.Must(ttemplate.New("hot_reload").Parse(hotReloadSource))

// Snippet renders the reload script for a socket listening on reloadAddr,
// minified and wrapped in a script element, ready for the "dev" key.
func Snippet(reloadAddr string, m minify.Minifier) (template.HTML, error) {
	_, port, err := net.SplitHostPort(reloadAddr)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "invalid reload address").
			WithContext("addr", reloadAddr).
			Build()
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "invalid reload port").
			WithContext("addr", reloadAddr).
			Build()
	}

	var buf bytes.Buffer
	if err := hotReloadTemplate.Execute(&buf, map[string]any{
		"Port":       port,
		"PingMillis": PingInterval.Milliseconds(),
	}); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render reload script").Build()
	}

	js, err := m.Minify(minify.KindJS, buf.Bytes())
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryInternal, "failed to minify reload script").Build()
	}
	// #nosec G203 -- script is generated from an embedded template and a numeric port
	return template.HTML("<script>" + string(js) + "</script>"), nil
}
