// Package workspace holds the minimal workspace aggregate the billing engine
// needs: a billing contact and a feature kill switch. Workspace content
// (sites, CRM data, products) lives outside this engine.
package workspace

import (
	"fmt"
	"time"

	"github.com/lumahq/luma/internal/shared/id"
)

type Workspace struct {
	id              uint
	wsid            string
	name            string
	billingEmail    string
	featuresEnabled bool
	createdAt       time.Time
	updatedAt       time.Time
}

func NewWorkspace(name, billingEmail string) (*Workspace, error) {
	if name == "" {
		return nil, fmt.Errorf("workspace name is required")
	}
	if billingEmail == "" {
		return nil, fmt.Errorf("billing email is required")
	}

	now := time.Now().UTC()
	return &Workspace{
		wsid:            id.MustGenerateWithPrefix(id.PrefixWorkspace, id.DefaultLength),
		name:            name,
		billingEmail:    billingEmail,
		featuresEnabled: true,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func ReconstructWorkspace(workspaceID uint, wsid, name, billingEmail string, featuresEnabled bool, createdAt, updatedAt time.Time) (*Workspace, error) {
	if workspaceID == 0 {
		return nil, fmt.Errorf("workspace ID cannot be zero")
	}
	return &Workspace{
		id:              workspaceID,
		wsid:            wsid,
		name:            name,
		billingEmail:    billingEmail,
		featuresEnabled: featuresEnabled,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}, nil
}

func (w *Workspace) ID() uint              { return w.id }
func (w *Workspace) WSID() string          { return w.wsid }
func (w *Workspace) Name() string          { return w.name }
func (w *Workspace) BillingEmail() string  { return w.billingEmail }
func (w *Workspace) FeaturesEnabled() bool { return w.featuresEnabled }
func (w *Workspace) CreatedAt() time.Time  { return w.createdAt }
func (w *Workspace) UpdatedAt() time.Time  { return w.updatedAt }

// SetID sets the workspace ID (persistence layer use only).
func (w *Workspace) SetID(newID uint) error {
	if w.id != 0 {
		return fmt.Errorf("workspace ID is already set")
	}
	if newID == 0 {
		return fmt.Errorf("workspace ID cannot be zero")
	}
	w.id = newID
	return nil
}

// DisableFeatures revokes access while retaining data.
func (w *Workspace) DisableFeatures() {
	if !w.featuresEnabled {
		return
	}
	w.featuresEnabled = false
	w.updatedAt = time.Now().UTC()
}

// EnableFeatures restores access after reactivation or recovery.
func (w *Workspace) EnableFeatures() {
	if w.featuresEnabled {
		return
	}
	w.featuresEnabled = true
	w.updatedAt = time.Now().UTC()
}
