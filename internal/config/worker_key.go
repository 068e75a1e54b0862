package config

type WorkerKeyStruct struct {
	OriginActivityQueue string
}

var WorkerKey = &WorkerKeyStruct{
	OriginActivityQueue: "origin_activity_queue",
}
