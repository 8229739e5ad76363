/*
Package session serializes access to named documents.

A Manager wraps a ports.DocumentStore with a per-name in-process mutex and,
optionally, a ports.DistributedLocker (see the redis adapter) so replicas
sharing one store do not lose each other's writes.
*/
package session
