package bot

import (
	"html"
	"sort"
	"strings"
)

const (
	TypeText    = "text"
	TypeImage   = "img"
	TypeAt      = "at"
	TypeFigure  = "figure"
	TypeMessage = "message"
)

// Element 消息元素，text/img/at 为叶子，figure/message 可以嵌套
type Element struct {
	Type     string
	Attrs    map[string]string
	Children []Element
}

type Fragment []Element

func Text(content string) Element {
	return Element{Type: TypeText, Attrs: map[string]string{"content": content}}
}

func Image(src string) Element {
	return Element{Type: TypeImage, Attrs: map[string]string{"src": src}}
}

func At(id string) Element {
	return Element{Type: TypeAt, Attrs: map[string]string{"id": id}}
}

func Figure(children ...Element) Element {
	return Element{Type: TypeFigure, Children: children}
}

// Message 合并转发中的一条消息，userId/nickname 决定显示的发送者
func Message(userID, nickname string, children ...Element) Element {
	return Element{
		Type:     TypeMessage,
		Attrs:    map[string]string{"userId": userID, "nickname": nickname},
		Children: children,
	}
}

func (e Element) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

// Select 深度优先查找指定类型的元素
func Select(fragment Fragment, typ string) []Element {
	var result []Element
	for _, e := range fragment {
		if e.Type == typ {
			result = append(result, e)
		}
		if len(e.Children) > 0 {
			result = append(result, Select(e.Children, typ)...)
		}
	}
	return result
}

func (f Fragment) String() string {
	var b strings.Builder
	for _, e := range f {
		e.writeTo(&b)
	}
	return b.String()
}

func (e Element) String() string {
	var b strings.Builder
	e.writeTo(&b)
	return b.String()
}

func (e Element) writeTo(b *strings.Builder) {
	if e.Type == TypeText {
		b.WriteString(html.EscapeString(e.Attr("content")))
		return
	}
	b.WriteString("<" + e.Type)
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + `="` + html.EscapeString(e.Attrs[k]) + `"`)
	}
	if len(e.Children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	for _, child := range e.Children {
		child.writeTo(b)
	}
	b.WriteString("</" + e.Type + ">")
}
