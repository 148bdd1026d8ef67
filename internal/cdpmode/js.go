package cdpmode

import (
	"bytes"
	"encoding/json"
	"strings"
)

// jsSelectorHelper provides _find(sel) and _findAll(sel). CSS selectors are
// the default; selectors starting with "/" or "./" or "(" are treated as
// XPath, matching how people write locators by hand.
const jsSelectorHelper = `
function _isXPath(sel) {
  return sel.charAt(0) === "/" || sel.slice(0, 2) === "./" || sel.charAt(0) === "(";
}
function _find(sel) {
  if (_isXPath(sel)) {
    var r = document.evaluate(sel, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
    return r.singleNodeValue;
  }
  return document.querySelector(sel);
}
function _findAll(sel) {
  if (_isXPath(sel)) {
    var out = [];
    var r = document.evaluate(sel, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
    for (var i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
    return out;
  }
  return Array.prototype.slice.call(document.querySelectorAll(sel));
}
function _mustFind(sel) {
  var el = _find(sel);
  if (!el) {
    throw {message: "element not found: " + sel, __code: "` + CodeElementNotFound + `"};
  }
  return el;
}
`

// jsVisibilityHelper provides _visible(el) using layout boxes and computed style.
const jsVisibilityHelper = `
function _visible(el) {
  if (!el) return false;
  if (!el.getClientRects || el.getClientRects().length === 0) return false;
  var style = window.getComputedStyle(el);
  if (style.visibility === "hidden" || style.display === "none" || style.opacity === "0") return false;
  var rect = el.getBoundingClientRect();
  return rect.width > 0 && rect.height > 0;
}
`

// jsElementInfoHelper provides _info(el), the wire shape for element results.
const jsElementInfoHelper = jsVisibilityHelper + `
function _info(el) {
  var rect = el.getBoundingClientRect();
  var attrs = {};
  for (var i = 0; i < el.attributes.length; i++) {
    attrs[el.attributes[i].name] = el.attributes[i].value;
  }
  return {
    tag: el.tagName.toLowerCase(),
    text: (el.innerText || el.textContent || "").trim(),
    visible: _visible(el),
    attributes: attrs,
    rect: {x: rect.x, y: rect.y, width: rect.width, height: rect.height}
  };
}
`

// jsNativeSetterHelper provides _setValue(el, v) which goes through the native
// value setter so frameworks with controlled inputs observe the change.
const jsNativeSetterHelper = `
function _setValue(el, v) {
  var proto = el.tagName === "TEXTAREA" ? window.HTMLTextAreaElement.prototype : window.HTMLInputElement.prototype;
  var desc = Object.getOwnPropertyDescriptor(proto, "value");
  if (desc && desc.set) { desc.set.call(el, v); } else { el.value = v; }
  el.dispatchEvent(new Event("input", {bubbles: true}));
  el.dispatchEvent(new Event("change", {bubbles: true}));
}
`

func jsFindElement(selector string) string {
	return wrapJSEval(jsSelectorHelper + jsElementInfoHelper + `
var el = _mustFind(` + jsString(selector) + `);
return JSON.stringify({ok:true,data:_info(el)});`)
}

func jsFindElements(selector string) string {
	return wrapJSEval(jsSelectorHelper + jsElementInfoHelper + `
var els = _findAll(` + jsString(selector) + `);
var out = [];
for (var i = 0; i < els.length; i++) out.push(_info(els[i]));
return JSON.stringify({ok:true,data:{elements:out}});`)
}

func jsFindElementByText(text, selector string) string {
	return wrapJSEval(jsSelectorHelper + jsElementInfoHelper + `
var want = ` + jsString(text) + `;
var els = _findAll(` + jsString(selector) + `);
for (var i = 0; i < els.length; i++) {
  var t = (els[i].innerText || els[i].textContent || "").trim();
  if (t.indexOf(want) !== -1) {
    return JSON.stringify({ok:true,data:_info(els[i])});
  }
}
throw {message: "no element with text: " + want, __code: "` + CodeElementNotFound + `"};`)
}

func jsFindVisibleElements(selector string) string {
	return wrapJSEval(jsSelectorHelper + jsElementInfoHelper + `
var els = _findAll(` + jsString(selector) + `);
var out = [];
for (var i = 0; i < els.length; i++) {
  if (_visible(els[i])) out.push(_info(els[i]));
}
return JSON.stringify({ok:true,data:{elements:out}});`)
}

func jsClickVisibleElements(selector string, limit int) string {
	return wrapJSEval(jsSelectorHelper + jsVisibilityHelper + `
var els = _findAll(` + jsString(selector) + `);
var limit = ` + jsJSON(limit) + `;
var clicked = 0;
for (var i = 0; i < els.length; i++) {
  if (!_visible(els[i])) continue;
  els[i].click();
  clicked++;
  if (limit > 0 && clicked >= limit) break;
}
return JSON.stringify({ok:true,data:{clicked:clicked}});`)
}

func jsClickNthElement(selector string, n int) string {
	return wrapJSEval(jsSelectorHelper + `
var els = _findAll(` + jsString(selector) + `);
var n = ` + jsJSON(n) + `;
if (n < 0 || n >= els.length) {
  throw {message: "no match at index " + n + " for: " + ` + jsString(selector) + `, __code: "` + CodeElementNotFound + `"};
}
els[n].scrollIntoView({block: "center", inline: "center"});
els[n].click();
return JSON.stringify({ok:true,data:{status:"clicked"}});`)
}

func jsClickLink(text string) string {
	return wrapJSEval(jsVisibilityHelper + `
var want = ` + jsString(text) + `;
var links = Array.prototype.slice.call(document.querySelectorAll("a"));
var partial = null;
for (var i = 0; i < links.length; i++) {
  if (!_visible(links[i])) continue;
  var t = (links[i].innerText || links[i].textContent || "").trim();
  if (t === want) {
    links[i].click();
    return JSON.stringify({ok:true,data:{status:"clicked"}});
  }
  if (partial === null && t.indexOf(want) !== -1) partial = links[i];
}
if (partial) {
  partial.click();
  return JSON.stringify({ok:true,data:{status:"clicked"}});
}
throw {message: "no link with text: " + want, __code: "` + CodeElementNotFound + `"};`)
}

func jsIsElementPresent(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
return JSON.stringify({ok:true,data:{present:_find(` + jsString(selector) + `) !== null}});`)
}

func jsIsElementVisible(selector string) string {
	return wrapJSEval(jsSelectorHelper + jsVisibilityHelper + `
var el = _find(` + jsString(selector) + `);
return JSON.stringify({ok:true,data:{visible:_visible(el)}});`)
}

// jsElementCenter scrolls the element into view and reports its viewport
// center, used for trusted mouse clicks.
func jsElementCenter(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.scrollIntoView({block: "center", inline: "center"});
var rect = el.getBoundingClientRect();
return JSON.stringify({ok:true,data:{x:rect.x + rect.width / 2, y:rect.y + rect.height / 2}});`)
}

func jsClick(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.scrollIntoView({block: "center", inline: "center"});
el.click();
return JSON.stringify({ok:true,data:{status:"clicked"}});`)
}

func jsFocus(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.scrollIntoView({block: "center", inline: "center"});
el.focus();
return JSON.stringify({ok:true,data:{status:"focused"}});`)
}

func jsClearInput(selector string) string {
	return wrapJSEval(jsSelectorHelper + jsNativeSetterHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.focus();
_setValue(el, "");
return JSON.stringify({ok:true,data:{status:"cleared"}});`)
}

func jsSetValue(selector, value string) string {
	return wrapJSEval(jsSelectorHelper + jsNativeSetterHelper + `
var el = _mustFind(` + jsString(selector) + `);
_setValue(el, ` + jsString(value) + `);
return JSON.stringify({ok:true,data:{value:el.value}});`)
}

func jsGetText(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
return JSON.stringify({ok:true,data:{text:(el.innerText || el.textContent || "").trim()}});`)
}

func jsGetAttribute(selector, name string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
var v = el.getAttribute(` + jsString(name) + `);
return JSON.stringify({ok:true,data:{value:v === null ? null : String(v)}});`)
}

func jsSetAttribute(selector, name, value string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.setAttribute(` + jsString(name) + `, ` + jsString(value) + `);
return JSON.stringify({ok:true,data:{status:"set"}});`)
}

func jsGetElementHTML(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
return JSON.stringify({ok:true,data:{html:el.outerHTML}});`)
}

func jsRemoveElement(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.remove();
return JSON.stringify({ok:true,data:{status:"removed"}});`)
}

func jsSelectOption(selector, value string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
var want = ` + jsString(value) + `;
var matched = false;
for (var i = 0; i < el.options.length; i++) {
  var opt = el.options[i];
  if (opt.value === want || opt.text.trim() === want) {
    el.selectedIndex = i;
    matched = true;
    break;
  }
}
if (!matched) {
  throw {message: "option not found: " + want, __code: "` + CodeElementNotFound + `"};
}
el.dispatchEvent(new Event("change", {bubbles: true}));
return JSON.stringify({ok:true,data:{value:el.value}});`)
}

// jsHighlight pulses a colored outline on the element, handy when watching a
// headed browser.
func jsHighlight(selector string, ms int) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.scrollIntoView({block: "center", inline: "center"});
var prev = el.style.outline;
el.style.outline = "3px solid rgb(255, 64, 129)";
setTimeout(function() { el.style.outline = prev; }, ` + jsJSON(ms) + `);
return JSON.stringify({ok:true,data:{status:"highlighted"}});`)
}

func jsScrollIntoView(selector string) string {
	return wrapJSEval(jsSelectorHelper + `
var el = _mustFind(` + jsString(selector) + `);
el.scrollIntoView({block: "center", inline: "center"});
return JSON.stringify({ok:true,data:{status:"scrolled"}});`)
}

func jsScrollToTop() string {
	return wrapJSEval(`
window.scrollTo(0, 0);
return JSON.stringify({ok:true,data:{status:"scrolled"}});`)
}

func jsScrollToBottom() string {
	return wrapJSEval(`
window.scrollTo(0, document.body.scrollHeight);
return JSON.stringify({ok:true,data:{status:"scrolled"}});`)
}

func jsScrollBy(x, y int) string {
	return wrapJSEval(`
window.scrollBy(` + jsJSON(x) + `, ` + jsJSON(y) + `);
return JSON.stringify({ok:true,data:{status:"scrolled"}});`)
}

func jsScrollToY(y int) string {
	return wrapJSEval(`
window.scrollTo(0, ` + jsJSON(y) + `);
return JSON.stringify({ok:true,data:{status:"scrolled"}});`)
}

func jsScreenSize() string {
	return wrapJSEval(`
return JSON.stringify({ok:true,data:{width:window.screen.availWidth,height:window.screen.availHeight}});`)
}

func jsCookieString() string {
	return wrapJSEval(`
return JSON.stringify({ok:true,data:{cookies:String(document.cookie)}});`)
}

func jsPageInfo() string {
	return wrapJSEval(`
return JSON.stringify({ok:true,data:{
  url: String(window.location.href),
  title: String(document.title),
  origin: String(window.location.origin),
  ready_state: String(document.readyState),
  user_agent: String(navigator.userAgent),
  locale: String(navigator.language)
}});`)
}

func jsPageSource() string {
	return wrapJSEval(`
return JSON.stringify({ok:true,data:{source:document.documentElement.outerHTML}});`)
}

// jsUserEval wraps an arbitrary user expression. The expression's value is
// returned as-is under "value"; non-serialisable values come back as null.
func jsUserEval(expression string) string {
	return wrapJSEvalAsync(`
var value = await (async function() { return (` + expression + `); })();
if (value === undefined) value = null;
return JSON.stringify({ok:true,data:{value:value}});`)
}

// jsString renders v as a JS string literal. HTML escaping is off: the
// output is evaluated, not embedded in a document, and escaped "</script>"
// would break selector comparisons.
func jsString(v string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		b, _ := json.Marshal(v)
		return string(b)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func jsJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func buildIIFE(async bool, body string) string {
	prefix := "(function(){\n"
	if async {
		prefix = "(async function(){\n"
	}
	return prefix + `try {
` + body + `
} catch (err) {
return JSON.stringify({ok:false,error_code:String(err && err.__code || "` + CodeEvalFailure + `"),error_message:String(err && err.message || err)});
}
})()`
}

func wrapJSEval(body string) string      { return buildIIFE(false, body) }
func wrapJSEvalAsync(body string) string { return buildIIFE(true, body) }
