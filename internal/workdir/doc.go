// Package workdir allocates uniquely named temporary files for in-flight
// audio requests. Name uniqueness (timestamp plus random identifier) is the
// only collision defense; nothing else is shared between requests.
package workdir
