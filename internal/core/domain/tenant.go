package domain

// TenantContext identifies the tenant and logical operation on whose behalf
// a core call is made. It is passed explicitly to every core operation so
// the pipeline can run in parallel across tenants without ambient state.
type TenantContext struct {
	// TenantID is the isolated customer scope for the operation.
	TenantID string

	// CorrelationID threads one logical operation through logs and
	// persisted records across components.
	CorrelationID string

	// Actor is the user or system identity performing the operation.
	// Optional; empty for unattended background work.
	Actor string
}

// Valid reports whether the context carries the minimum identifying fields.
func (c TenantContext) Valid() bool {
	return c.TenantID != "" && c.CorrelationID != ""
}
