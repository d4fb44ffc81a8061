// Package subscription implements the subscription registry: it multiplexes
// many dependent callbacks per path onto a single underlying watch, and
// hands out RAII-style handles so that dropping interest in a path is a
// single method call regardless of how many other subscribers remain.
package subscription
