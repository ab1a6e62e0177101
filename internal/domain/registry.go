package domain

import "time"

// Load balancer lifecycle statuses.
const (
	LBStatusActive      = "active"
	LBStatusMaintenance = "maintenance"
	LBStatusInactive    = "inactive"
)

// LBCapacity tracks how loaded a registered load balancer is.
type LBCapacity struct {
	MaxVIPs        int `json:"max_vips"`
	CurrentVIPs    int `json:"current_vips"`
	MaxConnections int `json:"max_connections"`
	MaxThroughput  int `json:"max_throughput,omitempty"`
}

// LBAttributes carries type-specific appliance attributes.
type LBAttributes struct {
	Version        string            `json:"version,omitempty"`
	Platform       string            `json:"platform,omitempty"`
	ClusterMode    bool              `json:"cluster_mode"`
	ClusterMembers []string          `json:"cluster_members,omitempty"`
	SSLOffload     bool              `json:"ssl_offload"`
	WAFEnabled     bool              `json:"waf_enabled"`
	DDoSProtection bool              `json:"ddos_protection"`
	Custom         map[string]string `json:"custom_attributes,omitempty"`
}

// LoadBalancer is a registered appliance that VIPs can be placed on.
type LoadBalancer struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	LBType        string       `json:"lb_type"`
	Version       string       `json:"version,omitempty"`
	IPAddress     string       `json:"ip_address"`
	Port          int          `json:"port"`
	Datacenter    string       `json:"datacenter"`
	Environment   string       `json:"environment"`
	AdminURL      string       `json:"admin_url,omitempty"`
	APIEndpoint   string       `json:"api_endpoint,omitempty"`
	CredentialsID string       `json:"credentials_id,omitempty"`
	Status        string       `json:"status"`
	Capacity      LBCapacity   `json:"capacity"`
	Attributes    LBAttributes `json:"attributes"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// LBFilter narrows registry listings. Zero-valued fields match everything.
type LBFilter struct {
	LBType      string
	Datacenter  string
	Environment string
	Status      string
}

// Matches reports whether the load balancer satisfies every set filter
// field.
func (f LBFilter) Matches(lb *LoadBalancer) bool {
	if f.LBType != "" && lb.LBType != f.LBType {
		return false
	}
	if f.Datacenter != "" && lb.Datacenter != f.Datacenter {
		return false
	}
	if f.Environment != "" && lb.Environment != f.Environment {
		return false
	}
	if f.Status != "" && lb.Status != f.Status {
		return false
	}
	return true
}

// Known deployment locations served by the platform.
var (
	Environments = []string{"DEV", "UAT", "PROD"}
	Datacenters  = []string{"LADC", "NYDC", "UKDC"}
)
