package cdpmode

import (
	"strings"
	"testing"
)

func TestJsStringEscapes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`with "quotes"`, `"with \"quotes\""`},
		{"line\nbreak", `"line\nbreak"`},
		{`</script>`, `"</script>"`},
	}
	for _, tt := range tests {
		if got := jsString(tt.in); got != tt.want {
			t.Errorf("jsString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestWrapJSEvalCatchesDefaultCode(t *testing.T) {
	js := wrapJSEval(`return JSON.stringify({ok:true});`)
	if !strings.HasPrefix(js, "(function(){") {
		t.Errorf("expected sync IIFE prefix, got %q", js[:20])
	}
	if !strings.Contains(js, CodeEvalFailure) {
		t.Errorf("expected default error code %s in catch clause", CodeEvalFailure)
	}

	async := wrapJSEvalAsync(`return JSON.stringify({ok:true});`)
	if !strings.HasPrefix(async, "(async function(){") {
		t.Errorf("expected async IIFE prefix, got %q", async[:25])
	}
}

func TestSelectorBuildersEmbedSelector(t *testing.T) {
	sel := `input[name="user"]`
	builders := map[string]string{
		"find":     jsFindElement(sel),
		"findAll":  jsFindElements(sel),
		"click":    jsClick(sel),
		"focus":    jsFocus(sel),
		"text":     jsGetText(sel),
		"visible":  jsIsElementVisible(sel),
		"center":   jsElementCenter(sel),
		"scroll":   jsScrollIntoView(sel),
		"html":     jsGetElementHTML(sel),
		"remove":   jsRemoveElement(sel),
		"setValue": jsSetValue(sel, "v"),
		"byText":   jsFindElementByText("t", sel),
		"visAll":   jsFindVisibleElements(sel),
		"clickAll": jsClickVisibleElements(sel, 0),
		"clickNth": jsClickNthElement(sel, 2),
	}
	for name, js := range builders {
		if !strings.Contains(js, jsString(sel)) {
			t.Errorf("%s builder missing escaped selector", name)
		}
	}
}

func TestElementBuildersRaiseNotFound(t *testing.T) {
	js := jsFindElement("#missing")
	if !strings.Contains(js, CodeElementNotFound) {
		t.Errorf("expected %s marker in find builder", CodeElementNotFound)
	}
	if !strings.Contains(js, `_mustFind(`+jsString("#missing")+`)`) {
		t.Errorf("find builder should resolve through _mustFind")
	}
	// Presence checks never raise; they report a boolean instead.
	if strings.Contains(jsIsElementPresent("#missing"), `_mustFind(`+jsString("#missing")+`)`) {
		t.Errorf("presence check must not resolve through _mustFind")
	}
}

func TestJsStringKeepsHTMLVerbatim(t *testing.T) {
	if got := jsString(`</script>`); got != `"</script>"` {
		t.Errorf("jsString(</script>) = %s, want unescaped literal", got)
	}
	if got := jsString(`a&b<c>`); got != `"a&b<c>"` {
		t.Errorf("jsString(a&b<c>) = %s, want unescaped literal", got)
	}
}

func TestJsClickLinkPrefersExactText(t *testing.T) {
	js := jsClickLink("Sign in")
	if !strings.Contains(js, `t === want`) {
		t.Errorf("link builder should try an exact text match first")
	}
	if !strings.Contains(js, `t.indexOf(want) !== -1`) {
		t.Errorf("link builder should fall back to a substring match")
	}
	if !strings.Contains(js, CodeElementNotFound) {
		t.Errorf("expected %s marker in link builder", CodeElementNotFound)
	}
}

func TestJsClickVisibleElementsHonorsLimit(t *testing.T) {
	js := jsClickVisibleElements("button.dismiss", 3)
	if !strings.Contains(js, "var limit = 3;") {
		t.Errorf("limit not embedded: %s", js)
	}
	if !strings.Contains(js, "clicked >= limit") {
		t.Errorf("limit not enforced in loop")
	}
}

func TestJsScreenSizeReportsAvailArea(t *testing.T) {
	js := jsScreenSize()
	if !strings.Contains(js, "window.screen.availWidth") || !strings.Contains(js, "window.screen.availHeight") {
		t.Errorf("screen size builder should read the available screen area: %s", js)
	}
}

func TestJsUserEvalWrapsExpression(t *testing.T) {
	js := jsUserEval(`document.title`)
	if !strings.Contains(js, "document.title") {
		t.Errorf("expression not embedded")
	}
	if !strings.Contains(js, "await") {
		t.Errorf("user eval should await promises")
	}
}

func TestJsSelectOptionMatchesValueOrText(t *testing.T) {
	js := jsSelectOption("#country", "Germany")
	if !strings.Contains(js, `opt.value === want`) || !strings.Contains(js, `opt.text.trim() === want`) {
		t.Errorf("select builder should match by value and by text")
	}
}
