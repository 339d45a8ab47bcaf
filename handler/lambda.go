package handler

import "github.com/aws/aws-lambda-go/events"

// FromAPIGateway converts an API Gateway v2 proxy event into the
// framework-agnostic request the endpoints consume.
func FromAPIGateway(req events.APIGatewayV2HTTPRequest) Request {
	return Request{
		Method: req.RequestContext.HTTP.Method,
		Body:   req.Body,
	}
}

// ToAPIGateway converts the response envelope back into an API Gateway v2
// proxy response.
func (r Response) ToAPIGateway() events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       r.Body,
	}
}
