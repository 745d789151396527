// Package ports declares the contracts between the extraction core and its
// adapters: inbound use-case interfaces consumed by transport layers, and
// outbound interfaces implemented by infrastructure.
package ports
