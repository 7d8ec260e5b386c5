// Package nss resolves user and group entries by calling the reentrant
// entry points of NSS service plugins directly, skipping the libc dispatch
// layer that re-reads nsswitch configuration on every call.
//
// Three backends are supported, in fixed priority order: the local file
// database (files), the SSSD directory-service plugin (sss), and the Samba
// domain-join plugin (winbind). Plugins are loaded lazily, once per
// process, and their handles are never released; only handles and resolved
// entry points are cached, never result data.
//
// Keyed lookups either pin a single backend or walk the priority chain and
// return the first hit. Whole-database traversals go through stateful
// enumeration sessions with explicit disposal. See Resolver for the
// concurrency contract.
package nss
