package support

// User-facing texts. They are part of the response contract.
const (
	msgUnrecognized = "Sorry, I didn't understand the request."

	msgInvalidOrderRequest = "Invalid order creation request. Please specify the service and client name."
	msgNoClientNamed       = "No client found with name '%s'"
	msgOrderCreated        = "Order created successfully for %s with service %s."

	msgOrderStatus        = "Order %s status: %s"
	msgNoOrderWithID      = "No order found with ID %s"
	msgStatusNeedsOrderID = "Please specify the order ID to check its status."

	msgOrderNotFound   = "Order not found"
	msgDueNeedsOrderID = "Please mention the order ID."

	msgEnquiryCreated = "Enquiry created for %s"

	msgSearchNeedsField = "Please specify name, email, or phone to search."
	msgNoClientWith     = "No client found with %s: %s"

	msgNeedClientName = "Please provide a client name."

	msgNeedOrderStatus = "Please specify a valid status (paid or pending)."
)

// Actions complete "An error occurred while ..." in collaborator failures.
const (
	actionCreateOrder    = "creating the order"
	actionOrderStatus    = "checking the order status"
	actionPaymentDue     = "calculating payment due"
	actionListClasses    = "listing classes"
	actionCreateEnquiry  = "creating the enquiry"
	actionSearchClient   = "searching for the client"
	actionClientOrders   = "retrieving orders for the client"
	actionOrdersByStatus = "filtering orders by status"
	actionFilterClasses  = "filtering classes"
)
