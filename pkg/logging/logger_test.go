package logging

import "testing"

func TestNilLoggerDoesNotPanic(t *testing.T) {
	var l *Logger
	l.Print("hello")
	l.Printf("hello %d", 1)
	l.Println("hello")
	l.Warn("uh oh")
	l.Warnf("uh oh %d", 2)
	l.Error(nil)
	if w := l.Writer(); w == nil {
		t.Fatal("Writer() should never return nil, even for a nil Logger")
	}
}

func TestSubloggerPrefix(t *testing.T) {
	root := &Logger{}
	child := root.Sublogger("watching")
	if child.prefix != "watching" {
		t.Errorf("prefix = %q, want %q", child.prefix, "watching")
	}
	grandchild := child.Sublogger("node")
	if grandchild.prefix != "watching.node" {
		t.Errorf("prefix = %q, want %q", grandchild.prefix, "watching.node")
	}
}

func TestNilSubloggerIsNil(t *testing.T) {
	var l *Logger
	if l.Sublogger("x") != nil {
		t.Error("Sublogger on a nil Logger should return nil")
	}
}
