package domain

// AnalyticsSummary is the organization-wide fleet overview backing the
// analytics dashboard (premium feature).
type AnalyticsSummary struct {
	OrganizationID     string                    `json:"organizationId"`
	EquipmentTotal     int                       `json:"equipmentTotal"`
	EquipmentByStatus  map[EquipmentStatus]int   `json:"equipmentByStatus"`
	WorkOrdersOpen     int                       `json:"workOrdersOpen"`
	WorkOrdersByStatus map[WorkOrderStatus]int   `json:"workOrdersByStatus"`
	WorkOrdersByTeam   map[string]int            `json:"workOrdersByTeam"`
	PriorityBreakdown  map[WorkOrderPriority]int `json:"priorityBreakdown"`
}

// WorkOrderReportRow is one line of the exported work-order report
// (premium feature).
type WorkOrderReportRow struct {
	WorkOrderID   string  `json:"workOrderId"`
	TeamID        string  `json:"teamId"`
	EquipmentID   string  `json:"equipmentId"`
	EquipmentName string  `json:"equipmentName"`
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	CreatedBy     string  `json:"createdBy"`
	AssigneeID    *string `json:"assigneeId,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	CompletedAt   *string `json:"completedAt,omitempty"`
}
