// Package domain holds the records managed by the LBaaS API: VIP
// definitions owned by users and the registry of load balancer appliances
// they are placed on.
package domain

import "time"

// MonitorSpec is the health monitor requested for a VIP.
type MonitorSpec struct {
	Type    string `json:"type"`
	Port    int    `json:"port"`
	Send    string `json:"send,omitempty"`
	Receive string `json:"receive,omitempty"`
}

// PersistenceSpec is the session persistence requested for a VIP.
type PersistenceSpec struct {
	Type    string `json:"type"`
	Timeout int    `json:"timeout"`
}

// PoolMemberSpec is one backend server entry in a VIP request.
type PoolMemberSpec struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

// VIP is a virtual IP record as stored by the registry. It is the intake
// side of the pipeline; the IR builder turns it into a standard
// configuration when the VIP is deployed.
type VIP struct {
	ID                    string           `json:"id"`
	FQDN                  string           `json:"vip_fqdn"`
	IPAddress             string           `json:"vip_ip,omitempty"`
	AppID                 string           `json:"app_id"`
	Environment           string           `json:"environment"`
	Datacenter            string           `json:"datacenter"`
	PrimaryContactEmail   string           `json:"primary_contact_email"`
	SecondaryContactEmail string           `json:"secondary_contact_email,omitempty"`
	TeamDistributionEmail string           `json:"team_distribution_email,omitempty"`
	Monitor               MonitorSpec      `json:"monitor"`
	Persistence           *PersistenceSpec `json:"persistence,omitempty"`
	SSLCertName           string           `json:"ssl_cert_name,omitempty"`
	MTLSCACertName        string           `json:"mtls_ca_cert_name,omitempty"`
	Pool                  []PoolMemberSpec `json:"pool"`
	Owner                 string           `json:"owner"`
	Port                  int              `json:"port"`
	Protocol              string           `json:"protocol"`
	LBMethod              string           `json:"lb_method,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// VIPUpdate carries a partial update; nil fields are left unchanged.
type VIPUpdate struct {
	FQDN                  *string          `json:"vip_fqdn,omitempty"`
	IPAddress             *string          `json:"vip_ip,omitempty"`
	AppID                 *string          `json:"app_id,omitempty"`
	Environment           *string          `json:"environment,omitempty"`
	Datacenter            *string          `json:"datacenter,omitempty"`
	PrimaryContactEmail   *string          `json:"primary_contact_email,omitempty"`
	SecondaryContactEmail *string          `json:"secondary_contact_email,omitempty"`
	TeamDistributionEmail *string          `json:"team_distribution_email,omitempty"`
	Monitor               *MonitorSpec     `json:"monitor,omitempty"`
	Persistence           *PersistenceSpec `json:"persistence,omitempty"`
	SSLCertName           *string          `json:"ssl_cert_name,omitempty"`
	MTLSCACertName        *string          `json:"mtls_ca_cert_name,omitempty"`
	Pool                  []PoolMemberSpec `json:"pool,omitempty"`
	Port                  *int             `json:"port,omitempty"`
	Protocol              *string          `json:"protocol,omitempty"`
	LBMethod              *string          `json:"lb_method,omitempty"`
}

// Apply merges non-nil update fields into the record and bumps UpdatedAt.
func (v *VIP) Apply(update VIPUpdate) {
	if update.FQDN != nil {
		v.FQDN = *update.FQDN
	}
	if update.IPAddress != nil {
		v.IPAddress = *update.IPAddress
	}
	if update.AppID != nil {
		v.AppID = *update.AppID
	}
	if update.Environment != nil {
		v.Environment = *update.Environment
	}
	if update.Datacenter != nil {
		v.Datacenter = *update.Datacenter
	}
	if update.PrimaryContactEmail != nil {
		v.PrimaryContactEmail = *update.PrimaryContactEmail
	}
	if update.SecondaryContactEmail != nil {
		v.SecondaryContactEmail = *update.SecondaryContactEmail
	}
	if update.TeamDistributionEmail != nil {
		v.TeamDistributionEmail = *update.TeamDistributionEmail
	}
	if update.Monitor != nil {
		v.Monitor = *update.Monitor
	}
	if update.Persistence != nil {
		v.Persistence = update.Persistence
	}
	if update.SSLCertName != nil {
		v.SSLCertName = *update.SSLCertName
	}
	if update.MTLSCACertName != nil {
		v.MTLSCACertName = *update.MTLSCACertName
	}
	if update.Pool != nil {
		v.Pool = update.Pool
	}
	if update.Port != nil {
		v.Port = *update.Port
	}
	if update.Protocol != nil {
		v.Protocol = *update.Protocol
	}
	if update.LBMethod != nil {
		v.LBMethod = *update.LBMethod
	}
	v.UpdatedAt = time.Now().UTC()
}

// User roles recognized by the entitlement checks.
const (
	RoleAdmin   = "admin"
	RoleAuditor = "auditor"
	RoleUser    = "user"
)

// User is an authenticated API principal.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
	Disabled bool   `json:"disabled"`
}

// CanModify reports whether the user may modify the given VIP. Admins may
// modify anything; auditors nothing; users only records they own.
func (u User) CanModify(vip *VIP) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleAuditor:
		return false
	default:
		return vip.Owner == u.Username
	}
}
